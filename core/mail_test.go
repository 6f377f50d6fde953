package core_test

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benouakrim/Academora-02-sub002/core"
	"github.com/Benouakrim/Academora-02-sub002/tests"
)

func TestSalutation(t *testing.T) {
	tests := []struct {
		addr mail.Address
		want string
	}{
		{addr: mail.Address{Name: "Awe", Address: "awe@test.com"}, want: "Awe"},
		{addr: mail.Address{Name: "  ", Address: "awe@test.com"}, want: "awe@test.com"},
		{addr: mail.Address{Address: "awe@test.com"}, want: "awe@test.com"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, core.Salutation(tt.addr))
		})
	}
}

func TestEmailMessage_Render(t *testing.T) {
	core.ParseEmailTemplates(testutil.NewLogger(core.NewTestConfig()), true /* strict */)
	to := mail.Address{Address: "registrar@stanford.edu"}

	msg := core.NewTemplatedMessage(to, "Confirm", "claim_verify", map[string]string{
		"Name": core.Salutation(to), "University": "Stanford University", "ClaimID": "c1", "Token": "t1",
	}, "https://academora.test")
	require.NoError(t, msg.Render())
	assert.True(t, strings.HasPrefix(msg.TextContent, "Hi registrar@stanford.edu,\n"), msg.TextContent)
	assert.Contains(t, msg.TextContent, "https://academora.test/claims/verify?id=c1&token=t1")
	assert.Contains(t, msg.HTMLContent, "Stanford University")

	// every layout field is required
	msg = core.NewTemplatedMessage(to, "Status", "article_status", map[string]string{
		"Title": "How to pick a major", "Status": "published", "Note": "",
	}, "https://academora.test")
	assert.Error(t, msg.Render())
}
