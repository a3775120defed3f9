// hca2wav decodes HCA streams to WAV files.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v3"

	"github.com/nicks96432/libcgss/hca"
	"github.com/nicks96432/libcgss/utils/logger"
)

func main() {
	var (
		outDir      string
		key         string
		keyModifier int
		loopCount   int
		useFloat    bool
		infoOnly    bool
		logLevel    string
	)

	cmd := &cli.Command{
		Name:      "hca2wav",
		Usage:     "decode HCA audio streams to WAV",
		ArgsUsage: "file.hca...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory (default: alongside input)", Destination: &outDir},
			&cli.StringFlag{Name: "key", Usage: "64-bit cipher key, decimal or 0x-prefixed hex", Destination: &key},
			&cli.IntFlag{Name: "key-modifier", Usage: "AFS2 key modifier (alignment word high half)", Destination: &keyModifier},
			&cli.IntFlag{Name: "loop", Usage: "play the loop region N times", Destination: &loopCount},
			&cli.BoolFlag{Name: "float", Usage: "emit 32-bit float samples instead of 16-bit PCM", Destination: &useFloat},
			&cli.BoolFlag{Name: "info", Usage: "print the stream descriptor as JSON and exit", Destination: &infoOnly},
			&cli.StringFlag{Name: "log-level", Value: "info", Destination: &logLevel},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return cli.Exit("no input files", 2)
			}

			cfg := hca.NewDecoderConfig()
			if key != "" {
				k, err := strconv.ParseUint(key, 0, 64)
				if err != nil {
					return cli.Exit(fmt.Sprintf("invalid key %q: %v", key, err), 2)
				}
				cfg.Cipher.Key1 = uint32(k)
				cfg.Cipher.Key2 = uint32(k >> 32)
			}
			cfg.Cipher.KeyModifier = uint16(keyModifier)
			if loopCount > 0 {
				cfg.LoopEnabled = true
				cfg.LoopCount = uint32(loopCount)
			}
			if useFloat {
				cfg.SampleFormat = hca.SampleFormatFloat32
			}

			log := logger.NewLogger("hca2wav", logLevel, os.Stderr)
			for _, path := range cmd.Args().Slice() {
				if err := decodeOne(path, outDir, cfg, infoOnly, log); err != nil {
					return err
				}
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func decodeOne(path, outDir string, cfg hca.DecoderConfig, infoOnly bool, log *logger.Logger) error {
	decoder, err := hca.OpenFile(path, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer decoder.Close()

	if infoOnly {
		payload, err := sonic.MarshalIndent(decoder.Info(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		return nil
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
	if outDir != "" {
		outPath = filepath.Join(outDir, filepath.Base(outPath))
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := decoder.DecodeToWav(out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("decoded %s -> %s", path, outPath)
	return nil
}
