// Package printsum formats short key/value summaries for terminals and logs.
package printsum

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/fortio/log"
	"github.com/RoaringBitmap/roaring"
)

type KV struct {
	Key  string
	Verb string
	Val  interface{}
}

// Fprint writes header followed by one aligned "key = value" line per kv.
func Fprint(w io.Writer, header string, kvs []KV) {
	width := 0
	for _, kv := range kvs {
		if len(kv.Key) > width {
			width = len(kv.Key)
		}
	}
	fmt.Fprintln(w, header)
	for _, kv := range kvs {
		fmt.Fprintf(w, "\t%-*s = "+kv.Verb+"\n", width, kv.Key, kv.Val)
	}
}

// Log is Fprint to the info log.
func Log(header string, kvs []KV) {
	var sb strings.Builder
	Fprint(&sb, header, kvs)
	log.Infof("%s", strings.TrimSuffix(sb.String(), "\n"))
}

// MaxBitmapWidth is the longest sequence callers render with BitmapString.
const MaxBitmapWidth = 200

// BitmapString renders the first n positions of b, '1' for set and '_'
// for unset.
func BitmapString(b *roaring.Bitmap, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := uint32(0); i < uint32(n); i++ {
		if b.Contains(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
