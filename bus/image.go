package bus

import (
	"math/big"

	"go.uber.org/zap"

	"github.com/wippyai/bitschema"
	"github.com/wippyai/bitschema/errors"
	"github.com/wippyai/bitschema/value"
)

// Store writes every register of b, level registers included, to mem at
// its absolute address. Each register occupies ceil(width/8) bytes,
// least significant byte first.
func Store(b *value.Block, mem bitschema.Memory) error {
	for _, r := range b.Registers() {
		if err := storeRegister(r, mem); err != nil {
			return err
		}
	}
	Logger().Debug("image stored",
		zap.String("block", b.Type().Name()),
		zap.Int("base", b.Base()),
		zap.Int("bytes", b.Group().ByteSize()))
	return nil
}

// Load reads every register of b back from mem. A stored value wider than
// its register is a range error.
func Load(b *value.Block, mem bitschema.Memory) error {
	for _, r := range b.Registers() {
		if err := loadRegister(r, mem); err != nil {
			return err
		}
	}
	return nil
}

func storeRegister(r *value.Register, mem bitschema.Memory) error {
	n := r.Descriptor().ByteSize()
	if err := mem.Write(uint32(r.Address()), encode(r.Get(), n)); err != nil {
		return errors.Prefix(r.Type().Name(), err)
	}
	return nil
}

func loadRegister(r *value.Register, mem bitschema.Memory) error {
	n := r.Descriptor().ByteSize()
	data, err := mem.Read(uint32(r.Address()), uint32(n))
	if err != nil {
		return errors.Prefix(r.Type().Name(), err)
	}
	v := decode(data)
	if w := r.Type().Width(); v.BitLen() > w {
		return errors.Range(errors.PhaseBus, []string{r.Type().Name()}, v, w)
	}
	return r.Set(v)
}

// encode renders v as n little-endian bytes.
func encode(v *big.Int, n int) []byte {
	out := v.FillBytes(make([]byte, n))
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func decode(data []byte) *big.Int {
	be := make([]byte, len(data))
	for i, b := range data {
		be[len(data)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}
