package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestInitExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()
	shutdown, err := Init(ctx, Config{Enabled: true, ServiceName: "test", Output: &buf})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	spanCtx, span := StartSpan(ctx, "finalize")
	if _, _, ok := IDs(spanCtx); !ok {
		t.Error("span context not valid")
	}
	span.End()

	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), `"Name":"finalize"`) {
		t.Errorf("exported spans missing finalize: %s", buf.String())
	}
}
