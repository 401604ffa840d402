package redact

import "testing"

func TestRedactJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "top level key",
			in:   `{"token":"secret","session_id":"s1"}`,
			want: `{"session_id":"s1","token":"***"}`,
		},
		{
			name: "nested and array",
			in:   `{"items":[{"Authorization":"Bearer x"}]}`,
			want: `{"items":[{"Authorization":"***"}]}`,
		},
		{
			name: "audio payload",
			in:   `{"data":"UklGRg==","sequence":3}`,
			want: `{"data":"***","sequence":3}`,
		},
		{
			name: "not json passes through",
			in:   `not json`,
			want: `not json`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RedactJSON(tc.in); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}
