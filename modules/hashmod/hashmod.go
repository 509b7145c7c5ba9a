// Package hashmod is the built-in "hash" module: md5/sha1/sha256 digests of
// the scanned data, the subset of YARA's own hash module these three
// standard library packages cover directly.
package hashmod

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sansecio/yarax/modules"
	"github.com/sansecio/yarax/types"
)

func init() {
	modules.Register(modules.Module{
		Name:     "hash",
		RootType: "Hash",
		Main:     main,
	})
}

// Message is hashmod's Message implementation: three hex digests of the
// entire scanned buffer.
type Message struct {
	MD5    string
	SHA1   string
	SHA256 string
}

func (m *Message) FullName() string { return "Hash" }

func (m *Message) RequiredFieldsSet() bool {
	return m.MD5 != "" && m.SHA1 != "" && m.SHA256 != ""
}

func (m *Message) ToStruct(generateEnumFields bool) *types.Struct {
	s := types.NewStruct("Hash")
	s.AddField("md5", types.String(m.MD5))
	s.AddField("sha1", types.String(m.SHA1))
	s.AddField("sha256", types.String(m.SHA256))
	return s
}

func main(ctx modules.ScanContext) (modules.Message, error) {
	data := ctx.Data()

	md5sum := md5.Sum(data)
	sha1sum := sha1.Sum(data)
	sha256sum := sha256.Sum256(data)

	return &Message{
		MD5:    hex.EncodeToString(md5sum[:]),
		SHA1:   hex.EncodeToString(sha1sum[:]),
		SHA256: hex.EncodeToString(sha256sum[:]),
	}, nil
}
