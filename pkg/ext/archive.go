package ext

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gocloud.dev/blob"

	"github.com/kode4food/bpmspec/pkg/spec"
)

type (
	// AuditArchive writes the audit trail of the active instance to a blob
	// bucket as a JSON object
	AuditArchive struct {
		bucket BucketWriter
		prefix string
	}

	// BucketWriter is the part of *blob.Bucket an AuditArchive needs
	BucketWriter interface {
		WriteAll(context.Context, string, []byte, *blob.WriterOptions) error
	}
)

const archiveContentType = "application/json"

var ErrBucketRequired = errors.New("bucket is required")

// ArchiveAuditTrail creates an AuditArchive. Objects are keyed
// <prefix>/<scenario>/<instance>.json
func ArchiveAuditTrail(bucket BucketWriter, prefix string) (
	*AuditArchive, error,
) {
	if bucket == nil {
		return nil, ErrBucketRequired
	}
	return &AuditArchive{
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (a *AuditArchive) ActionName() string {
	return "archive audit trail"
}

func (a *AuditArchive) Execute(s *spec.Scenario) error {
	trail, err := LoadAuditTrail(s)
	if err != nil {
		return err
	}
	data, err := json.Marshal(trail)
	if err != nil {
		return err
	}
	key := ArchiveKey(a.prefix, s.Name(), string(trail.Instance.ID))
	return a.bucket.WriteAll(s.Context(), key, data, &blob.WriterOptions{
		ContentType: archiveContentType,
	})
}

// ArchiveKey builds the object key for an instance's audit trail
func ArchiveKey(prefix, scenario, instance string) string {
	key := archiveSegment(scenario) + "/" + archiveSegment(instance) + ".json"
	if prefix == "" {
		return key
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + key
}

func archiveSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}
