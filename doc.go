// Package bitschema declares bit-packed data structures and register maps
// and derives their exact bit and byte layouts.
//
// Types are declared once, frozen, and then shared by any number of
// instances. Instances store their packed value in a single bit vector and
// expose named fields as live windows into it.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	bitschema/          Root package with the Memory interface
//	├── bits/           Fixed-width bit vectors and live windows
//	├── types/          Descriptors: scalar, enum, struct, union, array,
//	│                   register, group and file layouts
//	├── value/          Instances: get/set, assign, pack/unpack, flatten
//	├── schema/         Builder protocol, attribute schemas, YAML/TOML loader
//	├── witgen/         WIT projection and canonical ABI layout
//	├── bus/            Register file images over a Memory
//	└── errors/         Structured error types
//
// # Quick Start
//
// Declare a struct and pack an instance:
//
//	hdr, err := types.NewStruct("hdr", []types.Field{
//	    {Name: "ab", Type: types.Uint(12)},
//	    {Name: "cd", Type: types.Uint(3)},
//	    {Name: "ef", Type: types.Uint(9)},
//	}, types.StructOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, _ := value.New(hdr)
//	inst := v.(*value.Assembly)
//	_ = inst.Assign(map[string]*big.Int{
//	    "ab": big.NewInt(0xA35), "cd": big.NewInt(3), "ef": big.NewInt(0x1F),
//	})
//	fmt.Printf("%#x\n", value.Pack(inst))
//
// Or load a whole package from a schema file:
//
//	pkg, err := schema.LoadFile("soc.yaml")
//
// # Register Files
//
// Registers carry an access behavior. FIFO behaviors get a paired level
// register placed right after them. Groups and files lay registers out on a
// byte cadence derived from the widest member:
//
//	file, _ := pkg.Lookup("regs")
//	blk, _ := value.New(file)
//	mem := bus.NewSliceMemory(64)
//	_ = bus.Store(blk.(*value.Block), mem)
//
// # Thread Safety
//
// Descriptors are immutable once built and safe for concurrent use.
// Instances are NOT thread-safe and should be owned by a single goroutine.
package bitschema
