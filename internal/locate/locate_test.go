package locate

import (
	"errors"
	"strings"
	"testing"
)

// TestLocate tests payload extraction from sheet pages.
func TestLocate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    string
		want    string
		wantErr error
	}{
		{
			name: "inline script",
			page: `<html><head><script>var a=1;const record={flyweight:{texts:["x"]},actions:"q[0,1,1]"},replayRecord=null;</script></head></html>`,
			want: `{flyweight:{texts:["x"]},actions:"q[0,1,1]"}`,
		},
		{
			name: "payload spanning lines",
			page: "<script>\nconst record={\n  actions: 'g1;q[0,0,0]'\n},replayRecord\n</script>",
			want: "{\n  actions: 'g1;q[0,0,0]'\n}",
		},
		{
			name: "shortest match wins",
			page: `<script>const record={a:1},replayRecord; const record={b:2},replayRecord</script>`,
			want: `{a:1}`,
		},
		{
			name: "later script",
			page: `<script src="/app.js"></script><script>init()</script><script>const record=[1],replayRecord</script>`,
			want: `[1]`,
		},
		{
			name: "outside any script",
			page: `<div>const record={raw:true},replayRecord</div>`,
			want: `{raw:true}`,
		},
		{
			name: "plain text page",
			page: `const record={x:1},replayRecord`,
			want: `{x:1}`,
		},
		{
			name: "empty payload",
			page: `<script>const record=,replayRecord</script>`,
			want: ``,
		},
		{
			name:    "no marker",
			page:    `<html><script>const data={}</script></html>`,
			wantErr: ErrNotFound,
		},
		{
			name:    "assignment without terminator",
			page:    `<script>const record={a:1};</script>`,
			wantErr: ErrNotFound,
		},
		{
			name:    "empty page",
			page:    ``,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Locate(tt.page)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Locate() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestInlineScripts tests script enumeration.
func TestInlineScripts(t *testing.T) {
	t.Parallel()

	page := `<html><head><script src="x.js"></script><script>one()</script></head>` +
		`<body><p>text</p><script>two()</script></body></html>`

	t.Run("yields inline scripts in order", func(t *testing.T) {
		t.Parallel()

		var scripts []string
		for s := range InlineScripts(page) {
			scripts = append(scripts, s)
		}
		if strings.Join(scripts, ",") != "one(),two()" {
			t.Errorf("unexpected scripts %v", scripts)
		}
	})

	t.Run("stops when consumer breaks", func(t *testing.T) {
		t.Parallel()

		count := 0
		for range InlineScripts(page) {
			count++
			break
		}
		if count != 1 {
			t.Errorf("expected 1 iteration, got %d", count)
		}
	})
}
