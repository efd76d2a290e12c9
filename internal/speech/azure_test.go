package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hammamikhairi/ottolift/internal/logger"
)

func TestBuildSSML(t *testing.T) {
	c := NewAzureClient("key", "westeurope", logger.New(logger.LevelOff, nil))

	tests := []struct {
		name string
		text string
		rate float64
		want []string
	}{
		{"faster", "Lower", 1.1, []string{"rate='+10%'", ">Lower<", "name='" + DefaultVoice + "'"}},
		{"normal", "Set complete. 5 reps", 1.0, []string{"rate='+0%'", "Set complete. 5 reps"}},
		{"slower", "Hold", 0.8, []string{"rate='-20%'"}},
		{"escaped", "curls & <rows>", 1.0, []string{"curls &amp; &lt;rows&gt;"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.buildSSML(tt.text, tt.rate)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Fatalf("expected %q in %s", w, got)
				}
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	var gotBody, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		if gotKey != "secret" {
			http.Error(w, "denied", http.StatusUnauthorized)
			return
		}
		w.Write([]byte("RIFFaudio"))
	}))
	defer srv.Close()

	log := logger.New(logger.LevelOff, nil)

	c := NewAzureClient("secret", "test", log, WithEndpoint(srv.URL))
	audio, err := c.Synthesize(context.Background(), "Lift", 1.1)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(audio) != "RIFFaudio" {
		t.Fatalf("expected response body as audio, got %q", audio)
	}
	if !strings.Contains(gotBody, ">Lift<") {
		t.Fatalf("expected SSML with text, got %s", gotBody)
	}

	bad := NewAzureClient("wrong", "test", log, WithEndpoint(srv.URL))
	if _, err := bad.Synthesize(context.Background(), "Lift", 1.1); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
