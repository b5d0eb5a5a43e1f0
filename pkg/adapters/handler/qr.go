package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const (
	qrDataURLSize   = 1000
	qrDefaultSize   = 256
	qrMinSize       = 128
	qrMaxSize       = 1024
	qrDataURLScheme = "data:image/png;base64,"
)

// qrDataURL renders content as an inline PNG.
func qrDataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.High, qrDataURLSize)
	if err != nil {
		return "", err
	}
	return qrDataURLScheme + base64.StdEncoding.EncodeToString(png), nil
}

// QRCode handles GET /{id}/qr and serves the short link as a PNG.
func (h *HTTPHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	link, ok := h.lookup(w, r)
	if !ok {
		return
	}

	size := qrDefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < qrMinSize || n > qrMaxSize {
			http.Error(w, "size must be a number between 128 and 1024", http.StatusBadRequest)
			return
		}
		size = n
	}

	png, err := qrcode.Encode(h.shortURL(link.ID), qrcode.High, size)
	if err != nil {
		log.Error().Err(err).Str("id", link.ID).Msg("Failed to generate QR code")
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	if _, err := w.Write(png); err != nil {
		log.Error().Err(err).Msg("Failed to write QR code response")
	}
}
