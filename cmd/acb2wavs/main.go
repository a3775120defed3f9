// acb2wavs extracts an AFS2 archive and decodes every HCA payload to WAV.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/nicks96432/libcgss/acb"
	"github.com/nicks96432/libcgss/hca"
	"github.com/nicks96432/libcgss/streams"
	"github.com/nicks96432/libcgss/utils/logger"
)

func main() {
	var (
		outDir   string
		key      string
		raw      bool
		logLevel string
	)

	cmd := &cli.Command{
		Name:      "acb2wavs",
		Usage:     "extract an AFS2 archive and decode its HCA payloads",
		ArgsUsage: "file.awb",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory (default: <archive>_wavs)", Destination: &outDir},
			&cli.StringFlag{Name: "key", Usage: "64-bit cipher key, decimal or 0x-prefixed hex", Destination: &key},
			&cli.BoolFlag{Name: "raw", Usage: "dump payloads without decoding", Destination: &raw},
			&cli.StringFlag{Name: "log-level", Value: "info", Destination: &logLevel},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("expected exactly one archive", 2)
			}
			path := cmd.Args().First()
			log := logger.NewLogger("acb2wavs", logLevel, os.Stderr)

			cfg := hca.NewDecoderConfig()
			if key != "" {
				k, err := strconv.ParseUint(key, 0, 64)
				if err != nil {
					return cli.Exit(fmt.Sprintf("invalid key %q: %v", key, err), 2)
				}
				cfg.Cipher.Key1 = uint32(k)
				cfg.Cipher.Key2 = uint32(k >> 32)
			}

			if outDir == "" {
				outDir = strings.TrimSuffix(path, filepath.Ext(path)) + "_wavs"
			}
			return extractArchive(path, outDir, cfg, raw, log)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func extractArchive(path, outDir string, cfg hca.DecoderConfig, raw bool, log *logger.Logger) error {
	fs, err := streams.OpenFileStream(path)
	if err != nil {
		return err
	}
	archive, err := acb.NewArchive(fs, 0, filepath.Base(path), true)
	if err != nil {
		fs.Close()
		return err
	}
	defer archive.Close()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	cueIDs := make([]int, 0, len(archive.Files()))
	for id := range archive.Files() {
		cueIDs = append(cueIDs, int(id))
	}
	sort.Ints(cueIDs)

	cfg.Cipher.KeyModifier = archive.HcaKeyModifier()
	for _, id := range cueIDs {
		if err := extractOne(archive, uint16(id), outDir, cfg, raw, log); err != nil {
			log.Errorf("cue %d: %v", id, err)
		}
	}
	return nil
}

func extractOne(archive *acb.Archive, cueID uint16, outDir string, cfg hca.DecoderConfig, raw bool, log *logger.Logger) error {
	data, err := archive.ReadEntry(cueID)
	if err != nil {
		return err
	}

	if raw {
		outPath := filepath.Join(outDir, fmt.Sprintf("cue_%05d.bin", cueID))
		return os.WriteFile(outPath, data, 0644)
	}

	decoder, err := hca.NewDecoder(streams.NewMemoryStream(data), cfg)
	if err != nil {
		return err
	}

	outPath := filepath.Join(outDir, fmt.Sprintf("cue_%05d.wav", cueID))
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := decoder.DecodeToWav(out); err != nil {
		return err
	}
	log.Infof("decoded cue %d -> %s", cueID, outPath)
	return nil
}
