package transcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kerasty/smart-encoder/internal/preencode"
)

// FormatComment serializes a CommentPayload into the compact key/value
// block embedded in the output container's comment tag (spec.md §6). The
// block is a single line of "; "-separated entries that always opens with
// "comment: <sentinel>", so §4.3's skip-rule 1 substring test keeps working
// against files this package produced.
func FormatComment(p preencode.CommentPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "comment: %s; ", p.Comment)
	fmt.Fprintf(&b, "encoders: %s; ", strings.Join(p.Encoders, ","))
	fmt.Fprintf(&b, "CRF: %d; ", p.CRF)
	fmt.Fprintf(&b, "source file: %s; ", p.SourceFile)
	fmt.Fprintf(&b, "source file size: %s; ", p.SourceFileSize)
	fmt.Fprintf(&b, "source file md5: %s; ", p.SourceFileMD5)
	fmt.Fprintf(&b, "source file sha256: %s; ", p.SourceFileSHA256)
	fmt.Fprintf(&b, "estimated ratio: %s", strconv.FormatFloat(p.EstimatedRatio, 'f', 4, 64))
	return b.String()
}
