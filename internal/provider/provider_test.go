package provider

import (
	"net/netip"
	"testing"
	"time"

	"github.com/libdns/libdns"
	"github.com/stretchr/testify/assert"
)

func TestFromLibdns(t *testing.T) {
	a := FromLibdns(libdns.Address{Name: "web.example.com", IP: netip.MustParseAddr("2001:db8::1"), TTL: time.Hour})
	assert.Equal(t, Record{Name: "web.example.com", Type: "AAAA", Data: "2001:db8::1", TTL: time.Hour}, a)

	c := FromLibdns(libdns.CNAME{Name: "alias.example.com", Target: "router.example.com"})
	assert.Equal(t, Record{Name: "alias.example.com", Type: "CNAME", Data: "router.example.com"}, c)
}

func TestManaged(t *testing.T) {
	assert.True(t, Record{Name: "a", Type: "A"}.Managed())
	assert.True(t, Record{Name: "a", Type: "CNAME"}.Managed())
	assert.False(t, Record{Name: "a", Type: "FWD"}.Managed())
	assert.False(t, Record{Name: "a", Type: "A", Dynamic: true}.Managed())
	assert.False(t, Record{Type: "A"}.Managed())
}

func TestValueKey(t *testing.T) {
	tests := []struct {
		a, b Record
		same bool
	}{
		{Record{Type: "AAAA", Data: "2001:0db8::0001"}, Record{Type: "AAAA", Data: "2001:db8::1"}, true},
		{Record{Type: "AAAA", Data: "::ffff:10.0.0.1"}, Record{Type: "A", Data: "10.0.0.1"}, true},
		{Record{Type: "CNAME", Data: "Router.Example.com."}, Record{Type: "CNAME", Data: "router.example.com"}, true},
		{Record{Type: "A", Data: "10.0.0.1"}, Record{Type: "A", Data: "10.0.0.2"}, false},
		{Record{Type: "A", Data: "10.0.0.1"}, Record{Type: "CNAME", Data: "10.0.0.1"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.same, tt.a.ValueKey() == tt.b.ValueKey(), "%v vs %v", tt.a, tt.b)
	}
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, Record{Name: "WEB.example.com."}.NameKey(), Record{Name: "web.example.com"}.NameKey())
}

func TestLibdns(t *testing.T) {
	rec, err := Record{Name: "web.lan", Type: "A", Data: "10.0.0.1", TTL: time.Hour}.Libdns()
	assert.NoError(t, err)
	assert.Equal(t, libdns.Address{Name: "web.lan", IP: netip.MustParseAddr("10.0.0.1"), TTL: time.Hour}, rec)

	rec, err = Record{Name: "alias.lan", Type: "CNAME", Data: "web.lan"}.Libdns()
	assert.NoError(t, err)
	assert.Equal(t, libdns.CNAME{Name: "alias.lan", Target: "web.lan"}, rec)

	_, err = Record{Name: "bad.lan", Type: "A", Data: "not-an-ip"}.Libdns()
	assert.Error(t, err)
}
