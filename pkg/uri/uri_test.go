package uri

import "testing"

func TestBaseResolve(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"file:///data/a.json", "b.json#//@friends.0", "file:///data/b.json#//@friends.0"},
		{"file:///data/a.json", "#u1", "file:///data/a.json#u1"},
		{"http://x.org/docs/a.json", "../b.json#/", "http://x.org/b.json#/"},
		{"http://x.org/docs/a.json", "http://y.org/c.json#1", "http://y.org/c.json#1"},
		{"", "u1", "u1"},
	}
	for _, tt := range tests {
		if got := (Base{}).Resolve(tt.base, tt.ref); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
}

func TestBaseDeresolve(t *testing.T) {
	tests := []struct {
		base, abs, want string
	}{
		{"file:///data/a.json", "file:///data/b.json#//@friends.0", "b.json#//@friends.0"},
		{"file:///data/a.json", "file:///data/a.json#u1", "#u1"},
		{"file:///data/a.json", "file:///data/sub/c.json#/", "sub/c.json#/"},
		{"file:///data/a.json", "file:///other/c.json#/", "file:///other/c.json#/"},
		{"http://x.org/a.json", "http://y.org/a.json#/", "http://y.org/a.json#/"},
		{"", "file:///data/b.json", "file:///data/b.json"},
	}
	for _, tt := range tests {
		if got := (Base{}).Deresolve(tt.base, tt.abs); got != tt.want {
			t.Errorf("Deresolve(%q, %q) = %q, want %q", tt.base, tt.abs, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	base := "file:///data/a.json"
	for _, abs := range []string{
		"file:///data/b.json#//@x.1",
		"file:///data/sub/c.json#/",
		"http://elsewhere/d.json#u9",
	} {
		h := Base{}
		if got := h.Resolve(base, h.Deresolve(base, abs)); got != abs {
			t.Errorf("round trip of %q = %q", abs, got)
		}
	}
}

func TestSplitJoin(t *testing.T) {
	doc, frag := Split("b.json#//@x.0")
	if doc != "b.json" || frag != "//@x.0" {
		t.Errorf("Split = %q, %q", doc, frag)
	}
	if got := Join(doc, frag); got != "b.json#//@x.0" {
		t.Errorf("Join = %q", got)
	}
	if doc, frag := Split("u1"); doc != "u1" || frag != "" {
		t.Errorf("Split(u1) = %q, %q", doc, frag)
	}
}

func TestScheme(t *testing.T) {
	tests := map[string]string{
		"file:///a.json":       "file",
		"HTTPS://x.org/a.json": "https",
		"redis+tls://h/0":      "redis+tls",
		"a.json":               "",
		"/data/a.json":         "",
		"C:/data/a.json":       "",
		"#/0":                  "",
	}
	for in, want := range tests {
		if got := Scheme(in); got != want {
			t.Errorf("Scheme(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPathConversion(t *testing.T) {
	u, err := FromPath("/data/users.json")
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if u != "file:///data/users.json" {
		t.Errorf("FromPath = %q", u)
	}

	p, err := ToPath("file:///data/users.json#//@friends.0")
	if err != nil {
		t.Fatalf("ToPath: %v", err)
	}
	if p != "/data/users.json" {
		t.Errorf("ToPath = %q", p)
	}

	if p, _ := ToPath("rel/a.json"); p != "rel/a.json" {
		t.Errorf("ToPath(relative) = %q", p)
	}
	if _, err := ToPath("http://x.org/a.json"); err == nil {
		t.Error("ToPath(http) should fail")
	}
	if _, err := ToPath("file://remote/a.json"); err == nil {
		t.Error("ToPath(remote host) should fail")
	}
}
