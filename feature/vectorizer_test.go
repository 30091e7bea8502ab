package feature

import (
	"math"
	"testing"

	"github.com/rushteam/melorank/core"
)

func TestVectorizer_Vectorize(t *testing.T) {
	tests := []struct {
		name      string
		delimiter string
		song      *core.SongFeatures
		want      core.FeatureVector
	}{
		{
			name: "nil song yields empty vector",
			song: nil,
			want: core.FeatureVector{},
		},
		{
			name: "blank fields contribute nothing",
			song: &core.SongFeatures{ID: 1, Genres: []string{"", "  "}, Speed: " ", MoodTags: " , ,"},
			want: core.FeatureVector{},
		},
		{
			name: "genres and speed",
			song: &core.SongFeatures{ID: 1, Genres: []string{"Pop", "rock"}, Speed: "FAST"},
			want: core.FeatureVector{
				"genre:pop":  1,
				"genre:rock": 1,
				"speed:fast": 1,
			},
		},
		{
			name: "tags are trimmed lower-cased and de-duplicated",
			song: &core.SongFeatures{
				ID:             2,
				MoodTags:       " Happy, calm ,HAPPY,,calm",
				InstrumentTags: "Piano,piano , Guitar",
			},
			want: core.FeatureVector{
				"tag:happy":         1,
				"tag:calm":          1,
				"instrument:piano":  1,
				"instrument:guitar": 1,
			},
		},
		{
			name:      "custom delimiter",
			delimiter: "|",
			song:      &core.SongFeatures{ID: 3, MoodTags: "dark|moody, slow"},
			want: core.FeatureVector{
				"tag:dark":        1,
				"tag:moody, slow": 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVectorizer(tt.delimiter)
			got := v.Vectorize(tt.song)
			if len(got) != len(tt.want) {
				t.Fatalf("Vectorize() len = %d, want %d (got %v)", len(got), len(tt.want), got)
			}
			for k, w := range tt.want {
				if got[k] != w {
					t.Errorf("Vectorize()[%q] = %v, want %v", k, got[k], w)
				}
			}
		})
	}
}

func TestVectorizer_Deterministic(t *testing.T) {
	v := NewVectorizer("")
	song := &core.SongFeatures{ID: 9, Genres: []string{"jazz"}, Speed: "slow", MoodTags: "late night,smoky"}
	a := v.Vectorize(song)
	b := v.Vectorize(song)
	if len(a) != len(b) {
		t.Fatalf("vectors differ in size: %v vs %v", a, b)
	}
	for k := range a {
		if a[k] != b[k] {
			t.Errorf("key %q differs: %v vs %v", k, a[k], b[k])
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(core.FeatureVector{"a": 3, "b": 4})
	if math.Abs(got["a"]-0.6) > 1e-12 || math.Abs(got["b"]-0.8) > 1e-12 {
		t.Errorf("Normalize() = %v, want a=0.6 b=0.8", got)
	}

	if empty := Normalize(core.FeatureVector{}); len(empty) != 0 {
		t.Errorf("Normalize(empty) = %v, want empty", empty)
	}
	if zero := Normalize(core.FeatureVector{"a": 0}); len(zero) != 0 {
		t.Errorf("Normalize(zero) = %v, want empty", zero)
	}
}
