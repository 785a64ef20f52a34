package cache

import (
	"testing"
	"time"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "english",
			key:  Key{Code: 433, Locale: "en"},
			want: "sgs:meta:433:en",
		},
		{
			name: "portuguese",
			key:  Key{Code: 4189, Locale: "pt"},
			want: "sgs:meta:4189:pt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntry_IsExpired(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(time.Hour)}
	if fresh.IsExpired() {
		t.Error("Entry expiring in an hour should not be expired")
	}

	stale := &Entry{Expires: time.Now().Add(-time.Minute)}
	if !stale.IsExpired() {
		t.Error("Entry expired a minute ago should be expired")
	}
}

func TestEntry_TTL(t *testing.T) {
	entry := &Entry{Expires: time.Now().Add(10 * time.Minute)}

	ttl := entry.TTL()
	if ttl <= 9*time.Minute || ttl > 10*time.Minute {
		t.Errorf("TTL = %v, want about 10 minutes", ttl)
	}

	expired := &Entry{Expires: time.Now().Add(-time.Minute)}
	if expired.TTL() != 0 {
		t.Errorf("Expired entry TTL = %v, want 0", expired.TTL())
	}
}
