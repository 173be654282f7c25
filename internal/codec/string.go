package codec

// stringCodec handles TypeString and TypeChar by delegating to the
// byte-array encoding over the string's UTF-8 bytes: byte-lex order
// over UTF-8 bytes matches codepoint order, so no separate string rule
// is needed (spec.md §4.1).
type stringCodec struct {
	spec ColumnSpec
	lex  bool
}

func (c *stringCodec) inner() *byteArrayCodec {
	return &byteArrayCodec{spec: c.spec, lex: c.lex}
}

func (c *stringCodec) MinSize() int { return c.inner().MinSize() }

func (c *stringCodec) EncodeSize(value any, acc int) (int, error) {
	return c.inner().EncodeSize(value, acc)
}

func (c *stringCodec) Encode(value any, buf []byte, offset int) (int, error) {
	return c.inner().Encode(value, buf, offset)
}

func (c *stringCodec) Decode(buf []byte, offset int) (any, int, error) {
	val, next, err := c.inner().Decode(buf, offset)
	if err != nil || val == nil {
		return val, next, err
	}
	return string(val.([]byte)), next, nil
}

func (c *stringCodec) DecodeSkip(buf []byte, offset int) (int, error) {
	return c.inner().DecodeSkip(buf, offset)
}

func (c *stringCodec) FilterQuickCompare(buf []byte, offset int, op CompareOp, arg any) (QuickResult, error) {
	return c.inner().FilterQuickCompare(buf, offset, op, arg)
}
