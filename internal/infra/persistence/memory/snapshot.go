package memory

import (
	"auditcore/pkg/domain"
	"encoding/json"
	"fmt"
	"sort"
)

// Snapshot buckets as stored by the durable backends.
const (
	BucketAudits = "audits"
	BucketPhotos = "photos"
)

// Buckets lists every bucket in persistence order.
var Buckets = []string{BucketAudits, BucketPhotos}

// SectionIssue reports a stored audit section dropped while decoding a
// snapshot bucket.
type SectionIssue struct {
	AuditID string
	domain.SectionError
}

// EncodeBucket marshals one bucket of the snapshot.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	switch bucket {
	case BucketAudits:
		if s.Audits == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(s.Audits)
	case BucketPhotos:
		if s.Photos == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(s.Photos)
	}
	return nil, fmt.Errorf("unknown bucket %q", bucket)
}

// DecodeBucket loads one bucket into the snapshot. Audits decode leniently:
// malformed sections are dropped and returned as issues. Unknown buckets are
// ignored.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) ([]SectionIssue, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	switch bucket {
	case BucketAudits:
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", bucket, err)
		}
		ids := make([]string, 0, len(raw))
		for id := range raw {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		s.Audits = make(map[string]Audit, len(raw))
		var issues []SectionIssue
		for _, id := range ids {
			a, problems, err := domain.DecodeAudit(raw[id])
			if err != nil {
				return nil, fmt.Errorf("decode audit %s: %w", id, err)
			}
			s.Audits[id] = a
			for _, p := range problems {
				issues = append(issues, SectionIssue{AuditID: id, SectionError: p})
			}
		}
		return issues, nil
	case BucketPhotos:
		if err := json.Unmarshal(payload, &s.Photos); err != nil {
			return nil, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	return nil, nil
}
