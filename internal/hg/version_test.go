package hg

import "testing"

func TestParseVersionOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Version
		ok   bool
	}{
		{name: "empty", in: "", ok: false},
		{name: "plain", in: "Mercurial Distributed SCM (version 6.5.2)\n", want: Version{Major: 6, Minor: 5, Patch: 2}, ok: true},
		{name: "local_suffix", in: "Mercurial Distributed SCM (version 5.2.1+hg205.a1b2c3d4)\n", want: Version{Major: 5, Minor: 2, Patch: 1}, ok: true},
		{name: "no_patch", in: "Mercurial Distributed SCM (version 4.8)\n", want: Version{Major: 4, Minor: 8}, ok: true},
		{name: "no_prefix", in: "6.1.4\n", want: Version{Major: 6, Minor: 1, Patch: 4}, ok: true},
		{name: "rc", in: "Mercurial Distributed SCM (version 6.6rc0)\n", want: Version{Major: 6, Minor: 6}, ok: true},
		{name: "invalid", in: "Mercurial Distributed SCM (version unknown)\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseVersionOutput(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (got=%+v)", ok, tt.ok, got)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	t.Parallel()

	if got := (Version{Major: 6, Minor: 5, Patch: 2}).String(); got != "6.5.2" {
		t.Fatalf("String() = %q", got)
	}
}
