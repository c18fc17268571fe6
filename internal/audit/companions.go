package audit

import (
	"path/filepath"
	"strings"
)

// companionSuffixes lists suffixes that mark a file as a companion of a
// tracked recording rather than an independent file. Ordered longest first so
// compound suffixes match before their tails.
var companionSuffixes = []string{
	".commercials.edl",
	".mpg.orig",
	".orig",
	".srt",
	".edl",
	".txt",
}

// isCompanion reports whether name is a companion of some filename in
// tracked.
func isCompanion(name string, tracked map[string]struct{}) bool {
	return companionBase(name, tracked) != ""
}

// companionBase returns the tracked filename that name companions, or ""
// when name is not a companion of anything in tracked. Matching strips each
// known suffix and checks the remaining base against tracked names, both
// exactly and as a stem with any extension: "show.srt" companions
// "show.mpg", and "show.mpg.orig" companions "show.mpg" directly.
func companionBase(name string, tracked map[string]struct{}) string {
	if len(tracked) == 0 {
		return ""
	}
	lower := strings.ToLower(name)
	for _, suffix := range companionSuffixes {
		if !strings.HasSuffix(lower, suffix) {
			continue
		}
		base := name[:len(name)-len(suffix)]
		if base == "" {
			continue
		}
		if _, ok := tracked[base]; ok {
			return base
		}
		for trackedName := range tracked {
			stem := strings.TrimSuffix(trackedName, filepath.Ext(trackedName))
			if stem == base {
				return trackedName
			}
		}
	}
	return ""
}
