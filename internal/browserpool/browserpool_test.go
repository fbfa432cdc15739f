package browserpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeChallengeDetectsKnownMarkers(t *testing.T) {
	cases := []struct {
		name string
		html string
		want bool
	}{
		{"cloudflare", "<html><body>Checking your browser... cf-browser-verification</body></html>", true},
		{"attention-required", "<title>Attention Required!</title>", true},
		{"recaptcha", `<div class="g-recaptcha" data-sitekey="x"></div>`, true},
		{"normal-page", "<html><body><table><tr><td>Karar No</td></tr></table></body></html>", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, looksLikeChallenge(tc.html))
		})
	}
}

func TestShutdownIdempotentWithoutStart(t *testing.T) {
	p := New(2, nil)
	assert.NoError(t, p.Shutdown(nil)) //nolint:staticcheck // Shutdown does not touch ctx when never started
	assert.NoError(t, p.Shutdown(nil))
}

func TestNewClampsMaxParallelContexts(t *testing.T) {
	p := New(0, nil)
	assert.NotNil(t, p.sem)
}
