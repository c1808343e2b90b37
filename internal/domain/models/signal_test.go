package models

import (
	"reflect"
	"testing"
)

func TestSignalSet_ByKind(t *testing.T) {
	set := NewSignalSet()
	set.Add(SignalKindKeyword, "keyword_password")
	set.Add(SignalKindKeyword, "keyword_auth")
	set.Add(SignalKindPattern, "pattern_sql_shape")
	set.Add(SignalKindContext, "exposed")
	set.Add(SignalKindKeyword, "keyword_password") // duplicate is a no-op

	keywords := set.ByKind(SignalKindKeyword)
	names := make([]string, len(keywords))
	for i, s := range keywords {
		names[i] = s.Name
	}
	if want := []string{"keyword_auth", "keyword_password"}; !reflect.DeepEqual(names, want) {
		t.Errorf("keyword signals = %v, want %v", names, want)
	}

	if got := len(set.ByKind(SignalKindStatistic)); got != 0 {
		t.Errorf("statistic signals = %d, want 0", got)
	}
	if set.Len() != 4 {
		t.Errorf("Len() = %d, want 4", set.Len())
	}
}
