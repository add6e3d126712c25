package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// jobCursor marks the last job of a page
type jobCursor struct {
	StartTime time.Time
	JobID     string
}

func decodeJobCursor(cursorStr string) (*jobCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	startNanos, jobID, ok := strings.Cut(string(decoded), "|")
	if !ok || jobID == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var nanos int64
	if _, err := fmt.Sscanf(startNanos, "%d", &nanos); err != nil {
		return nil, fmt.Errorf("invalid start time in cursor: %w", err)
	}

	return &jobCursor{
		StartTime: time.Unix(0, nanos).UTC(),
		JobID:     jobID,
	}, nil
}

func encodeJobCursor(cursor *jobCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.StartTime.UnixNano(), cursor.JobID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
