package wire

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

func TestConsumerNameIsPerProcess(t *testing.T) {
	name := consumerName("book-factory")

	if !strings.HasPrefix(name, "book-factory-") {
		t.Fatalf("consumerName() = %q, want app prefix", name)
	}
	if !strings.HasSuffix(name, "-"+strconv.Itoa(os.Getpid())) {
		t.Fatalf("consumerName() = %q, want pid suffix", name)
	}
	if host, err := os.Hostname(); err == nil && host != "" && !strings.Contains(name, host) {
		t.Fatalf("consumerName() = %q, want hostname %q", name, host)
	}
	if name == "book-factory" {
		t.Fatal("consumerName() must differ from the shared app name")
	}
}
