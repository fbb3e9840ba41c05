package params

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/gaborage/go-params/constraints"
	"github.com/gaborage/go-params/source"
)

// Rules reported for upload checks.
const (
	RuleContentType   constraints.Rule = "content_type"
	RuleFileMinLength constraints.Rule = "file_min_length"
	RuleFileMaxLength constraints.Rule = "file_max_length"
)

const octetStream = "application/octet-stream"

// checkFiles applies upload rules to a coerced file or list of files.
func checkFiles(val any, rules source.File) *Error {
	switch v := val.(type) {
	case *multipart.FileHeader:
		return checkFile(v, rules)
	case []any:
		for i, item := range v {
			fh, ok := item.(*multipart.FileHeader)
			if !ok {
				continue
			}
			if err := checkFile(fh, rules); err != nil {
				err.Detail = fmt.Sprintf("item %d %s", i, err.Detail)
				return err
			}
		}
	}
	return nil
}

func checkFile(fh *multipart.FileHeader, rules source.File) *Error {
	if len(rules.ContentTypes) > 0 {
		ct, err := contentType(fh)
		if err != nil {
			return &Error{Kind: KindValidationFailed, Rule: RuleContentType, Detail: "could not read upload", Err: err}
		}
		if !matchesContentType(ct, rules.ContentTypes) {
			return &Error{
				Kind:   KindValidationFailed,
				Rule:   RuleContentType,
				Detail: fmt.Sprintf("must have content type %s, got %s", strings.Join(rules.ContentTypes, " or "), ct),
			}
		}
	}

	if rules.MinLength == 0 && rules.MaxLength == 0 {
		return nil
	}
	size, err := fileLength(fh)
	if err != nil {
		return &Error{Kind: KindValidationFailed, Rule: RuleFileMinLength, Detail: "could not read upload", Err: err}
	}
	if rules.MinLength > 0 && size < rules.MinLength {
		return &Error{
			Kind:   KindValidationFailed,
			Rule:   RuleFileMinLength,
			Detail: fmt.Sprintf("must be at least %d bytes", rules.MinLength),
		}
	}
	if rules.MaxLength > 0 && size > rules.MaxLength {
		return &Error{
			Kind:   KindValidationFailed,
			Rule:   RuleFileMaxLength,
			Detail: fmt.Sprintf("must be at most %d bytes", rules.MaxLength),
		}
	}
	return nil
}

// contentType returns the declared media type of the upload. When the client
// sent none, or only application/octet-stream, the content is sniffed.
func contentType(fh *multipart.FileHeader) (string, error) {
	declared := fh.Header.Get("Content-Type")
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			declared = mt
		}
	}
	if declared != "" && declared != octetStream {
		return declared, nil
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	mt, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return detected.String(), nil
	}
	return mt, nil
}

// fileLength measures the stream by seeking to its end.
func fileLength(fh *multipart.FileHeader) (int64, error) {
	f, err := fh.Open()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.Seek(0, io.SeekEnd)
}

func matchesContentType(ct string, allowed []string) bool {
	for _, pattern := range allowed {
		if strings.EqualFold(pattern, ct) || pattern == "*/*" {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if strings.HasPrefix(strings.ToLower(ct), strings.ToLower(prefix)+"/") {
				return true
			}
		}
	}
	return false
}
