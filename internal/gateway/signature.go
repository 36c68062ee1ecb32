package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds how stale a signed webhook timestamp may be.
const DefaultTolerance = 5 * time.Minute

// SignPayload produces the signature header the processor attaches to webhook
// deliveries: "t=<unix>,v1=<hex hmac-sha256 of '<unix>.<payload>'>". Exposed
// for tests and for the static gateway.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// ConstructEvent authenticates the raw webhook body against the signature
// header and decodes it. Any verification failure returns ErrInvalidSignature
// before the payload is interpreted.
func ConstructEvent(payload []byte, sigHeader, secret string, tolerance time.Duration) (Event, error) {
	ts, sig, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return Event{}, err
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return Event{}, ErrInvalidSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return Event{}, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	return event, nil
}

func parseSignatureHeader(header string) (int64, []byte, error) {
	var (
		ts  int64
		sig []byte
	)
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			decoded, err := hex.DecodeString(v)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			sig = decoded
		}
	}
	if ts == 0 || len(sig) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return ts, sig, nil
}
