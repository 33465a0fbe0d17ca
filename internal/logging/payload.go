package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/pweiskircher/cmux/internal/limits"
)

// payloadPreview is how many bytes of input are quoted when payload
// logging is on.
const payloadPreview = 256

var includePayloads atomic.Bool

func setIncludePayloads(v bool) { includePayloads.Store(v) }

// IncludePayloads reports whether logging.include_payloads is on.
func IncludePayloads() bool { return includePayloads.Load() }

// PayloadAttr describes text sent to a surface as a group of len and
// either sha256 (the default) or the quoted text. The hash covers at most
// limits.PayloadInspectLimit bytes so equal prefixes hash equal.
func PayloadAttr(key string, payload []byte) slog.Attr {
	if key == "" {
		key = "payload"
	}
	attrs := []slog.Attr{slog.Int("len", len(payload))}
	if len(payload) == 0 {
		return slog.Attr{Key: key, Value: slog.GroupValue(attrs...)}
	}
	if !IncludePayloads() {
		attrs = append(attrs, slog.String("sha256", payloadDigest(payload)))
		return slog.Attr{Key: key, Value: slog.GroupValue(attrs...)}
	}
	shown := payload
	if len(shown) > payloadPreview {
		shown = shown[:payloadPreview]
		attrs = append(attrs, slog.Int("omitted", len(payload)-payloadPreview))
	}
	attrs = append(attrs, slog.String("text", strconv.Quote(string(shown))))
	return slog.Attr{Key: key, Value: slog.GroupValue(attrs...)}
}

func payloadDigest(payload []byte) string {
	sum := sha256.Sum256(payload[:min(len(payload), limits.PayloadInspectLimit)])
	return hex.EncodeToString(sum[:6])
}
