package ardfs

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"foo/bar", "/foo/bar"},
		{"/Foo/BAR", "/foo/bar"},
		{`\foo\bar`, "/foo/bar"},
		{"//foo///bar", "/foo/bar"},
		{"/foo/", "/foo/"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", c.in, err)
		}
		if string(got) != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIllegalCharacter(t *testing.T) {
	_, err := Normalize("/foo/\xff")
	var ipe *InvalidPathError
	if !errors.As(err, &ipe) || ipe.Fault != IllegalCharacter {
		t.Fatalf("expected IllegalCharacter fault, got %v", err)
	}
}

func TestNormalizeTooLong(t *testing.T) {
	long := make([]byte, MaxPathLen)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Normalize(string(long))
	var ipe *InvalidPathError
	if !errors.As(err, &ipe) || ipe.Fault != TooLong {
		t.Fatalf("expected TooLong fault, got %v", err)
	}
}

func TestPathJoin(t *testing.T) {
	p := MustNormalize("/a/b")
	got, err := p.Join("c")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "/a/b/c" {
		t.Errorf("Join = %q", got)
	}
}

func TestPathIsRoot(t *testing.T) {
	if !Path("/").IsRoot() {
		t.Error("expected / to be root")
	}
	if Path("/a").IsRoot() {
		t.Error("expected /a to not be root")
	}
}
