package nextion

import (
	"strings"

	"github.com/juju/errors"
	"github.com/paulrosania/go-charset/charset"
	_ "github.com/paulrosania/go-charset/data"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// TJC panels ship with GB2312 fonts, go-charset has no CJK tables
var wideCodepages = map[string]encoding.Encoding{
	// GBK is a superset of EUC-CN bytes accepted by GB2312 fonts
	"gb2312":  simplifiedchinese.GBK,
	"gbk":     simplifiedchinese.GBK,
	"gb18030": simplifiedchinese.GB18030,
	"big5":    traditionalchinese.Big5,
}

// Codec converts between UTF-8 and panel font encoding.
// Nil or empty codepage passes bytes as is.
type Codec struct {
	name string
	wide encoding.Encoding
}

func NewCodec(name string) (*Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	c := &Codec{name: name}
	switch name {
	case "", "utf-8", "utf8":
		c.name = ""
		return c, nil
	}
	if e, ok := wideCodepages[name]; ok {
		c.wide = e
		return c, nil
	}
	if _, err := charset.TranslatorTo(name); err != nil {
		return nil, errors.NotSupportedf("codepage=%s", name)
	}
	return c, nil
}

func (c *Codec) Name() string {
	if c == nil || c.name == "" {
		return "utf-8"
	}
	return c.name
}

func (c *Codec) Encode(s string) ([]byte, error) {
	switch {
	case c == nil || c.name == "":
		return []byte(s), nil
	case c.wide != nil:
		b, err := c.wide.NewEncoder().Bytes([]byte(s))
		return b, errors.Annotatef(err, "encode codepage=%s", c.name)
	}
	// translators keep internal state and buffer, make one per call
	tr, err := charset.TranslatorTo(c.name)
	if err != nil {
		return nil, errors.Annotatef(err, "encode codepage=%s", c.name)
	}
	_, tb, err := tr.Translate([]byte(s), true)
	if err != nil {
		return nil, errors.Annotatef(err, "encode codepage=%s", c.name)
	}
	return append([]byte(nil), tb...), nil
}

func (c *Codec) Decode(b []byte) (string, error) {
	switch {
	case c == nil || c.name == "":
		return string(b), nil
	case c.wide != nil:
		s, err := c.wide.NewDecoder().Bytes(b)
		return string(s), errors.Annotatef(err, "decode codepage=%s", c.name)
	}
	tr, err := charset.TranslatorFrom(c.name)
	if err != nil {
		return "", errors.Annotatef(err, "decode codepage=%s", c.name)
	}
	_, tb, err := tr.Translate(b, true)
	if err != nil {
		return "", errors.Annotatef(err, "decode codepage=%s", c.name)
	}
	return string(tb), nil
}
