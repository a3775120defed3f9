// Package api exposes the decoder over HTTP: upload an HCA stream or an
// AFS2 archive, get back WAV bytes or descriptor JSON.
package api

import (
	"bytes"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/nicks96432/libcgss/acb"
	"github.com/nicks96432/libcgss/config"
	"github.com/nicks96432/libcgss/hca"
	"github.com/nicks96432/libcgss/streams"
)

type server struct {
	cfg config.Config
}

// RegisterRoutes attaches the decode endpoints to app.
func RegisterRoutes(app *fiber.App, cfg config.Config) {
	s := &server{cfg: cfg}
	app.Post("/decode/hca", s.decodeHCAHandler)
	app.Post("/info/hca", s.infoHCAHandler)
	app.Post("/unpack/afs2", s.unpackAFS2Handler)
}

func (s *server) decoderConfig() hca.DecoderConfig {
	cfg := hca.NewDecoderConfig()
	cfg.Cipher.Key1 = s.cfg.Decode.Key1
	cfg.Cipher.Key2 = s.cfg.Decode.Key2
	cfg.LoopEnabled = s.cfg.Decode.LoopEnabled
	cfg.LoopCount = s.cfg.Decode.LoopCount
	if s.cfg.Decode.Float32 {
		cfg.SampleFormat = hca.SampleFormatFloat32
	}
	return cfg
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, hca.ErrInvalidFormat), errors.Is(err, acb.ErrInvalidFormat),
		errors.Is(err, hca.ErrChecksum), errors.Is(err, hca.ErrDecodeFailed):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, hca.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, hca.ErrUnsupported):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
}

func (s *server) decodeHCAHandler(c *fiber.Ctx) error {
	decoder, err := hca.NewDecoder(streams.NewMemoryStream(c.Body()), s.decoderConfig())
	if err != nil {
		return errorJSON(c, err)
	}

	var out bytes.Buffer
	if err := decoder.DecodeToWav(&out); err != nil {
		return errorJSON(c, err)
	}

	c.Set(fiber.HeaderContentType, "audio/wav")
	return c.Send(out.Bytes())
}

func (s *server) infoHCAHandler(c *fiber.Ctx) error {
	info, err := hca.ReadInfo(streams.NewMemoryStream(c.Body()))
	if err != nil {
		return errorJSON(c, err)
	}

	payload, err := sonic.Marshal(info)
	if err != nil {
		return errorJSON(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

type afs2Entry struct {
	CueID  uint16 `json:"cue_id"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

func (s *server) unpackAFS2Handler(c *fiber.Ctx) error {
	archive, err := acb.NewArchive(streams.NewMemoryStream(c.Body()), 0, "", false)
	if err != nil {
		return errorJSON(c, err)
	}

	entries := make([]afs2Entry, 0, len(archive.Files()))
	for _, rec := range archive.Files() {
		entries = append(entries, afs2Entry{CueID: rec.CueID, Offset: rec.OffsetAligned, Size: rec.Size})
	}

	payload, err := sonic.Marshal(fiber.Map{
		"version":          archive.Version(),
		"byte_alignment":   archive.ByteAlignment(),
		"hca_key_modifier": archive.HcaKeyModifier(),
		"files":            entries,
	})
	if err != nil {
		return errorJSON(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}
