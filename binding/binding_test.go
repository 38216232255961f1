package binding

import (
	"reflect"
	"testing"
)

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"handle":   "jack",
		"username": "",
		"author":   map[string]any{"name": "Jack"},
	}
	cases := []struct {
		in, want string
	}{
		{"@${handle}", "@jack"},
		{"${ handle }!", "jack!"},
		{"${author.name}", "Jack"},
		{"${username|User}", "User"},
		{"${missing|fallback}", "fallback"},
		{"${missing}", "${missing}"},
		{"${author.name.first}", "${author.name.first}"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := Interpolate(tc.in, data); got != tc.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInterpolateNilData(t *testing.T) {
	if got := Interpolate("${a|b} ${c}", nil); got != "b ${c}" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestFields(t *testing.T) {
	got := Fields("@${handle} at ${now|never} ${}")
	want := []string{"handle", "now"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Fields = %v, want %v", got, want)
	}
}
