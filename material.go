// Copyright 2024 The retropak Authors.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package retropak

import (
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"
)

// MaterialDataType is the 7-entry FourCC-tagged taxonomy of material
// value kinds, grounded verbatim on original_source's EMaterialDataType
// (lib/src/format/cmdl.rs). Each variant is stored on disk as its FourCC
// tag rather than a small integer.
type MaterialDataType uint32

const (
	MaterialDataTexture MaterialDataType = 1
	MaterialDataColor   MaterialDataType = 2
	MaterialDataScalar  MaterialDataType = 3
	MaterialDataInt1    MaterialDataType = 4
	MaterialDataComplex MaterialDataType = 5
	MaterialDataInt4    MaterialDataType = 6
	MaterialDataMat4    MaterialDataType = 7
)

var materialDataTypeTags = map[MaterialDataType]string{
	MaterialDataTexture: "TXTR",
	MaterialDataColor:   "COLR",
	MaterialDataScalar:  "SCLR",
	MaterialDataInt1:    "INT1",
	MaterialDataComplex: "CPLX",
	MaterialDataInt4:    "INT4",
	MaterialDataMat4:    "MAT4",
}

var materialDataTypeByTag = invertTagMap(materialDataTypeTags)

// MaterialDataID is the ~115-entry FourCC-tagged taxonomy of individual
// material data slots, grounded verbatim on original_source's
// EMaterialDataId (lib/src/format/cmdl.rs).
type MaterialDataID uint32

const (
	MatCBUF MaterialDataID = iota + 1
	MatZBUF
	MatGBUF
	MatGFLG
	MatOPCT
	MatDIFT
	MatICAN
	MatSINC
	MatNMAP
	MatMNMP
	MatREFL
	MatREFS
	MatREFV
	MatSPCT
	MatLIBD
	MatLIBS
	MatFOGR
	MatINDI
	MatOTMP
	MatCGMP
	MatOGMP
	MatVAND
	MatBLAT
	MatBCLR
	MatMETL
	MatTCH0
	MatTCH1
	MatTCH2
	MatTCH3
	MatTCH4
	MatTCH5
	MatDIFC
	MatSHRC
	MatSPCC
	MatICNC
	MatICMC
	MatODAT
	MatMDCI
	MatMDOI
	MatLODC
	MatLODP
	MatVANP
	MatBLAL
	MatBLCM
	MatINDP
	MatPVLO
	MatPSXT
	MatPTAI
	MatPCMD
	MatBSAO
	MatCCH0
	MatCCH1
	MatCCH2
	MatCCH3
	MatCCH4
	MatCCH5
	MatCCH6
	MatBKLT
	MatBKLB
	MatBKLA
	MatBKGL
	MatDYIN
	MatCLP0
	MatHOTP
	MatSHID
	MatGBFF
	MatPMOD
	MatPFLG
	MatBLPI
	MatICH0
	MatICH1
	MatICH2
	MatAUVI
	MatECH0
	MatOPCS
	MatSPCP
	MatINDS
	MatBLSM
	MatLITS
	MatMDOE
	MatVANF
	MatOTHS
	MatPZSO
	MatRCH0
	MatRCH1
	MatRCH2
	MatPXFM
	MatMCH0
	MatBCRL
	MatMTLL
	MatNRML
	MatSHDD
	MatSKIN
	MatDIMD
	MatLIT
	MatALLD
	MatDLLD
	MatCLLD
	MatAUXF
	MatWIND
	MatWATR
	MatDFXS
	MatDFXN
	MatMCDD
	MatCAUS
	MatBLPD
	MatBLPT
	MatFOGS
	MatVOLF
	MatVFXB
	MatVFXD
	MatREFP
	MatRAIN
	MatXCH0
	MatXCH1
)

var materialDataIDTags = map[MaterialDataID]string{
	MatCBUF: "CBUF", MatZBUF: "ZBUF", MatGBUF: "GBUF", MatGFLG: "GFLG", MatOPCT: "OPCT",
	MatDIFT: "DIFT", MatICAN: "ICAN", MatSINC: "SINC", MatNMAP: "NMAP", MatMNMP: "MNMP",
	MatREFL: "REFL", MatREFS: "REFS", MatREFV: "REFV", MatSPCT: "SPCT", MatLIBD: "LIBD",
	MatLIBS: "LIBS", MatFOGR: "FOGR", MatINDI: "INDI", MatOTMP: "OTMP", MatCGMP: "CGMP",
	MatOGMP: "OGMP", MatVAND: "VAND", MatBLAT: "BLAT", MatBCLR: "BCLR", MatMETL: "METL",
	MatTCH0: "TCH0", MatTCH1: "TCH1", MatTCH2: "TCH2", MatTCH3: "TCH3", MatTCH4: "TCH4",
	MatTCH5: "TCH5", MatDIFC: "DIFC", MatSHRC: "SHRC", MatSPCC: "SPCC", MatICNC: "ICNC",
	MatICMC: "ICMC", MatODAT: "ODAT", MatMDCI: "MDCI", MatMDOI: "MDOI", MatLODC: "LODC",
	MatLODP: "LODP", MatVANP: "VANP", MatBLAL: "BLAL", MatBLCM: "BLCM", MatINDP: "INDP",
	MatPVLO: "PVLO", MatPSXT: "PSXT", MatPTAI: "PTAI", MatPCMD: "PCMD", MatBSAO: "BSAO",
	MatCCH0: "CCH0", MatCCH1: "CCH1", MatCCH2: "CCH2", MatCCH3: "CCH3", MatCCH4: "CCH4",
	MatCCH5: "CCH5", MatCCH6: "CCH6", MatBKLT: "BKLT", MatBKLB: "BKLB", MatBKLA: "BKLA",
	MatBKGL: "BKGL", MatDYIN: "DYIN", MatCLP0: "CLP0", MatHOTP: "HOTP", MatSHID: "SHID",
	MatGBFF: "GBFF", MatPMOD: "PMOD", MatPFLG: "PFLG", MatBLPI: "BLPI", MatICH0: "ICH0",
	MatICH1: "ICH1", MatICH2: "ICH2", MatAUVI: "AUVI", MatECH0: "ECH0", MatOPCS: "OPCS",
	MatSPCP: "SPCP", MatINDS: "INDS", MatBLSM: "BLSM", MatLITS: "LITS", MatMDOE: "MDOE",
	MatVANF: "VANF", MatOTHS: "OTHS", MatPZSO: "PZSO", MatRCH0: "RCH0", MatRCH1: "RCH1",
	MatRCH2: "RCH2", MatPXFM: "PXFM", MatMCH0: "MCH0", MatBCRL: "BCRL", MatMTLL: "MTLL",
	MatNRML: "NRML", MatSHDD: "SHDD", MatSKIN: "SKIN", MatDIMD: "DIMD", MatLIT: "LIT ",
	MatALLD: "ALLD", MatDLLD: "DLLD", MatCLLD: "CLLD", MatAUXF: "AUXF", MatWIND: "WIND",
	MatWATR: "WATR", MatDFXS: "DFXS", MatDFXN: "DFXN", MatMCDD: "MCDD", MatCAUS: "CAUS",
	MatBLPD: "BLPD", MatBLPT: "BLPT", MatFOGS: "FOGS", MatVOLF: "VOLF", MatVFXB: "VFXB",
	MatVFXD: "VFXD", MatREFP: "REFP", MatRAIN: "RAIN", MatXCH0: "XCH0", MatXCH1: "XCH1",
}

var materialDataIDByTag = invertTagMap(materialDataIDTags)

func invertTagMap[T comparable](m map[T]string) map[string]T {
	out := make(map[string]T, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// IsTextureLayered reports whether this data id's CPLX-typed value is a
// 3-layer texture stack rather than some other complex payload, grounded
// on EMaterialDataId::is_texture_layered.
func (id MaterialDataID) IsTextureLayered() bool {
	return id == MatBCRL || id == MatMTLL || id == MatNRML
}

// TextureUsageInfo is the optional sampler override attached to a
// non-nil material texture token (STextureUsageInfo).
type TextureUsageInfo struct {
	Flags  uint32
	Filter uint32
	WrapX  uint32
	WrapY  uint32
	WrapZ  uint32
}

// MaterialTextureToken references a texture asset by id, with an
// optional sampler override present whenever the id is non-nil
// (CMaterialTextureTokenData).
type MaterialTextureToken struct {
	ID    uuid.UUID
	Usage *TextureUsageInfo
}

// LayeredTextureBase is the shared header of a 3-layer texture stack
// (CLayeredTextureBaseData).
type LayeredTextureBase struct {
	Unk    uint32
	Colors [3]Color4
	Flags  uint8
}

// LayeredTextureData is a complete 3-layer texture stack value
// (CLayeredTextureData).
type LayeredTextureData struct {
	Base     LayeredTextureBase
	Textures [3]MaterialTextureToken
}

// MaterialValue is the decoded payload of one CMaterialData entry: the
// discriminated union original_source calls CMaterialDataInner, gated on
// (DataType, DataID.IsTextureLayered()) exactly as the Rust pre_assert
// guards do.
type MaterialValue struct {
	Texture         *MaterialTextureToken
	Color           *Color4
	Scalar          *float32
	Int1            *int32
	Int4            *Vector4i
	Mat4            *Matrix4
	LayeredTexture  *LayeredTextureData
}

// MaterialDataEntry is one slot of a material's data table (CMaterialData).
type MaterialDataEntry struct {
	DataID   MaterialDataID
	DataType MaterialDataType
	Value    MaterialValue
}

// MaterialRenderType is one entry of a material's render_types list
// (SMaterialRenderTypes).
type MaterialRenderType struct {
	DataID   FourCC
	DataType FourCC
	Flag1    uint8
	Flag2    uint8
}

// MaterialCache is a fully decoded material definition (CMaterialCache).
type MaterialCache struct {
	Name        string
	ShaderID    uuid.UUID
	UnkGUID     uuid.UUID
	Unk1, Unk2  uint32
	Types       []FourCC
	RenderTypes []MaterialRenderType
	Data        []MaterialDataEntry
}

func readMaterialTextureToken(r *bytes.Reader) (MaterialTextureToken, error) {
	var tok MaterialTextureToken
	var idBytes [16]byte
	if _, err := r.Read(idBytes[:]); err != nil {
		return tok, err
	}
	tok.ID = uuidFromBytesLE(idBytes[:])
	if tok.ID == uuid.Nil {
		return tok, nil
	}
	var usage TextureUsageInfo
	if err := binary.Read(r, binary.LittleEndian, &usage); err != nil {
		return tok, err
	}
	tok.Usage = &usage
	return tok, nil
}

// readMaterialCache decodes one CMaterialCache entry from r, advancing
// past it, grounded on CMaterialCache's field layout.
func readMaterialCache(r *bytes.Reader) (MaterialCache, error) {
	var m MaterialCache
	var nameLen uint32
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return m, err
	}
	nameBytes := make([]byte, nameLen)
	if _, err := r.Read(nameBytes); err != nil {
		return m, err
	}
	m.Name = string(nameBytes)

	var shaderIDBytes, unkGUIDBytes [16]byte
	if _, err := r.Read(shaderIDBytes[:]); err != nil {
		return m, err
	}
	m.ShaderID = uuidFromBytesLE(shaderIDBytes[:])
	if _, err := r.Read(unkGUIDBytes[:]); err != nil {
		return m, err
	}
	m.UnkGUID = uuidFromBytesLE(unkGUIDBytes[:])

	if err := binary.Read(r, binary.LittleEndian, &m.Unk1); err != nil {
		return m, err
	}
	if err := binary.Read(r, binary.LittleEndian, &m.Unk2); err != nil {
		return m, err
	}

	var typeCount uint32
	if err := binary.Read(r, binary.LittleEndian, &typeCount); err != nil {
		return m, err
	}
	m.Types = make([]FourCC, typeCount)
	for i := range m.Types {
		if _, err := r.Read(m.Types[i][:]); err != nil {
			return m, err
		}
	}

	var renderTypeCount uint32
	if err := binary.Read(r, binary.LittleEndian, &renderTypeCount); err != nil {
		return m, err
	}
	m.RenderTypes = make([]MaterialRenderType, renderTypeCount)
	for i := range m.RenderTypes {
		if _, err := r.Read(m.RenderTypes[i].DataID[:]); err != nil {
			return m, err
		}
		if _, err := r.Read(m.RenderTypes[i].DataType[:]); err != nil {
			return m, err
		}
		var flags [2]byte
		if _, err := r.Read(flags[:]); err != nil {
			return m, err
		}
		m.RenderTypes[i].Flag1, m.RenderTypes[i].Flag2 = flags[0], flags[1]
	}

	var dataCount uint32
	if err := binary.Read(r, binary.LittleEndian, &dataCount); err != nil {
		return m, err
	}
	types := make([]struct {
		ID MaterialDataID
		Ty MaterialDataType
	}, dataCount)
	for i := range types {
		idTag, err := readFourTag(r)
		if err != nil {
			return m, err
		}
		id, ok := materialDataIDByTag[idTag]
		if !ok {
			return m, newDecodeError("material_cache", ErrUnknownChunk, idTag)
		}
		tyTag, err := readFourTag(r)
		if err != nil {
			return m, err
		}
		ty, ok := materialDataTypeByTag[tyTag]
		if !ok {
			return m, newDecodeError("material_cache", ErrUnknownChunk, tyTag)
		}
		types[i] = struct {
			ID MaterialDataID
			Ty MaterialDataType
		}{id, ty}
	}

	// The data array repeats each entry's (data_id, data_type) tag pair
	// inline ahead of its value, duplicating the data_types array read
	// above; both copies are consumed to stay aligned with the on-disk
	// layout.
	m.Data = make([]MaterialDataEntry, dataCount)
	for i, t := range types {
		if _, err := readFourTag(r); err != nil {
			return m, err
		}
		if _, err := readFourTag(r); err != nil {
			return m, err
		}
		entry := MaterialDataEntry{DataID: t.ID, DataType: t.Ty}
		switch {
		case t.Ty == MaterialDataTexture:
			tok, err := readMaterialTextureToken(r)
			if err != nil {
				return m, err
			}
			entry.Value.Texture = &tok
		case t.Ty == MaterialDataColor:
			var c Color4
			if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
				return m, err
			}
			entry.Value.Color = &c
		case t.Ty == MaterialDataScalar:
			var f float32
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return m, err
			}
			entry.Value.Scalar = &f
		case t.Ty == MaterialDataInt1:
			var v int32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return m, err
			}
			entry.Value.Int1 = &v
		case t.Ty == MaterialDataInt4:
			var v Vector4i
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return m, err
			}
			entry.Value.Int4 = &v
		case t.Ty == MaterialDataMat4:
			var v Matrix4
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return m, err
			}
			entry.Value.Mat4 = &v
		case t.Ty == MaterialDataComplex && t.ID.IsTextureLayered():
			var base LayeredTextureBase
			if err := binary.Read(r, binary.LittleEndian, &base.Unk); err != nil {
				return m, err
			}
			if err := binary.Read(r, binary.LittleEndian, &base.Colors); err != nil {
				return m, err
			}
			if err := binary.Read(r, binary.LittleEndian, &base.Flags); err != nil {
				return m, err
			}
			var textures [3]MaterialTextureToken
			for j := range textures {
				tok, err := readMaterialTextureToken(r)
				if err != nil {
					return m, err
				}
				textures[j] = tok
			}
			entry.Value.LayeredTexture = &LayeredTextureData{Base: base, Textures: textures}
		default:
			return m, newDecodeError("material_cache", ErrInvariantViolation, "unhandled complex material data")
		}
		m.Data[i] = entry
	}

	return m, nil
}

func readFourTag(r *bytes.Reader) (string, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return "", err
	}
	return string(b[:]), nil
}
