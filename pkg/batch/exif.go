package batch

import (
	"bytes"
	"strings"
	"time"

	"github.com/bep/imagemeta"
)

// EXIF tags that carry the capture time, in order of preference
var takenTags = map[string]bool{
	"DateTimeOriginal": true,
	"DateTime":         true,
}

// TakenTime extracts the EXIF capture time from raw image bytes.
// Trail cameras stamp DateTimeOriginal on every frame, and it is the only
// trustworthy record of when a sighting happened, since file mtimes get
// clobbered by every copy off the SD card.
// Returns nil if the data has no parseable capture time.
func TakenTime(data []byte) *time.Time {
	if len(data) == 0 {
		return nil
	}

	var original, fallback *time.Time
	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return takenTags[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			t := tagValueTime(ti.Value)
			if t == nil {
				return nil
			}
			if ti.Tag == "DateTimeOriginal" {
				original = t
			} else {
				fallback = t
			}
			return nil
		},
	})
	if err != nil {
		return nil
	}
	if original != nil {
		return original
	}
	return fallback
}

func tagValueTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case string:
		// EXIF spec format: "2006:01:02 15:04:05"
		parsed, err := time.ParseInLocation("2006:01:02 15:04:05", strings.TrimSpace(t), time.Local)
		if err != nil {
			return nil
		}
		return &parsed
	}
	return nil
}
