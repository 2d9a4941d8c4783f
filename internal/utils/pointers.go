package utils

import (
	"time"
)

func BoolPtr(b bool) *bool {
	return &b
}

func IntPtr(i int) *int {
	return &i
}

func Int64Ptr(i int64) *int64 {
	return &i
}

func StringPtr(s string) *string {
	return &s
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

func PtrTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}

	return *t
}

func PtrInt64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

func PtrInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
