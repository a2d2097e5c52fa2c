package notify_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"servicepulse/backend/internal/models"
	"servicepulse/backend/internal/notify"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

type failing struct{ err error }

func (f failing) AnnounceAssignment(context.Context, models.Vendor, []models.Complaint) error {
	return f.err
}

func TestMailer_SendsOneMessagePerNotice(t *testing.T) {
	d := &captureDialer{}
	m := notify.NewMailerWithDialer("noreply@test", d)

	err := m.AnnounceAssignment(context.Background(),
		models.Vendor{Name: "Quick", Email: "quick@test"},
		[]models.Complaint{{ID: "1", Title: "Leak", Block: "A", Apartment: "101", Urgency: "High"}})

	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"quick@test"}, d.sent[0].GetHeader("To"))

	var buf bytes.Buffer
	_, err = d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Leak")
}

func TestMailer_SkipsVendorWithoutEmail(t *testing.T) {
	d := &captureDialer{}
	m := notify.NewMailerWithDialer("noreply@test", d)

	require.NoError(t, m.AnnounceAssignment(context.Background(), models.Vendor{Name: "Quick"}, []models.Complaint{{ID: "1"}}))
	assert.Empty(t, d.sent)
}

func TestMulti_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	m := notify.Multi{notify.Nop{}, failing{boom}, nil}

	err := m.AnnounceAssignment(context.Background(), models.Vendor{}, nil)
	assert.ErrorIs(t, err, boom)
}
