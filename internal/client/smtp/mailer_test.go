package smtp

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/bafnalights-dot/stock/internal/model"
)

type mimePart struct {
	mediaType string
	filename  string
	encoding  string
	body      []byte
}

// leafParts flattens nested multiparts into their non-multipart leaves.
func leafParts(t *testing.T, contentType string, body io.Reader) []mimePart {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	if !strings.HasPrefix(mediaType, "multipart/") {
		b, err := io.ReadAll(body)
		require.NoError(t, err)
		return []mimePart{{mediaType: mediaType, body: b}}
	}

	var out []mimePart
	mr := multipart.NewReader(body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)

		ct := p.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/") {
			out = append(out, leafParts(t, ct, p)...)
			continue
		}
		pt, _, err := mime.ParseMediaType(ct)
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		out = append(out, mimePart{
			mediaType: pt,
			filename:  p.FileName(),
			encoding:  p.Header.Get("Content-Transfer-Encoding"),
			body:      b,
		})
	}
}

func addresses(t *testing.T, header string) []string {
	t.Helper()

	list, err := mail.ParseAddressList(header)
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	m := NewMailer(Config{From: "stock@example.com"})
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	to := []string{gofakeit.Email(), gofakeit.Email()}
	content := []byte(strings.Repeat("xlsx-bytes", 40))

	msg, err := m.build(model.Mail{
		To:      to,
		Subject: "Stock report 2026-01-02",
		Body:    "See attachment.",
		Attachments: []model.Attachment{{
			Filename:    "stock_report_20260102_030405.xlsx",
			ContentType: model.ExcelContentType,
			Content:     content,
		}},
	})
	require.NoError(t, err)

	var raw bytes.Buffer
	_, err = msg.WriteTo(&raw)
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(&raw)
	require.NoError(t, err)
	assert.Equal(t, to, addresses(t, parsed.Header.Get("To")))
	assert.Equal(t, []string{"stock@example.com"}, addresses(t, parsed.Header.Get("From")))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Stock report 2026-01-02", subject)

	date, err := parsed.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(m.now()))

	parts := leafParts(t, parsed.Header.Get("Content-Type"), parsed.Body)
	require.Len(t, parts, 2)

	assert.Equal(t, "text/plain", parts[0].mediaType)
	assert.Equal(t, "See attachment.", strings.TrimSpace(string(parts[0].body)))

	att := parts[1]
	assert.Equal(t, "stock_report_20260102_030405.xlsx", att.filename)
	assert.Equal(t, model.ExcelContentType, att.mediaType)
	assert.Equal(t, "base64", strings.ToLower(att.encoding))

	decoded, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(att.body)), ""))
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestBuildRejectsBadAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from string
		to   []string
	}{
		{name: "sender", from: "not an address", to: []string{gofakeit.Email()}},
		{name: "recipient", from: "stock@example.com", to: []string{"not an address"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewMailer(Config{From: tt.from})
			_, err := m.build(model.Mail{To: tt.to, Subject: "s", Body: "b"})
			assert.Error(t, err)
		})
	}
}

func TestSend(t *testing.T) {
	t.Parallel()

	t.Run("hands the built message over with a deadline", func(t *testing.T) {
		t.Parallel()

		m := NewMailer(Config{Host: "mail.local", Port: 587, From: "stock@example.com", Timeout: time.Minute})
		var got *gomail.Msg
		m.send = func(ctx context.Context, msg *gomail.Msg) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			got = msg
			return nil
		}

		err := m.Send(context.Background(), model.Mail{To: []string{gofakeit.Email()}, Subject: "s", Body: "b"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{"s"}, got.GetGenHeader(gomail.HeaderSubject))
	})

	t.Run("wraps transport errors", func(t *testing.T) {
		t.Parallel()

		errRefused := errors.New("connection refused")
		m := NewMailer(Config{Host: "mail.local", Port: 25, From: "stock@example.com"})
		m.send = func(context.Context, *gomail.Msg) error { return errRefused }

		err := m.Send(context.Background(), model.Mail{To: []string{gofakeit.Email()}, Subject: "s", Body: "b"})
		require.ErrorIs(t, err, errRefused)
		assert.Contains(t, err.Error(), "mail.local:25")
	})

	t.Run("does not dial on a bad message", func(t *testing.T) {
		t.Parallel()

		m := NewMailer(Config{From: "stock@example.com"})
		m.send = func(context.Context, *gomail.Msg) error {
			t.Error("send must not be called")
			return nil
		}

		err := m.Send(context.Background(), model.Mail{To: []string{"not an address"}})
		assert.Error(t, err)
	})
}
