package schema

import "encoding/json"

// MarshalJSON flattens the record into the downstream training-data shape:
// one top-level key per property plus a sibling "<property>_unit" key.
// encoding/json sorts map keys, so output is byte-stable across runs.
func (r NormalizedRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Properties)*2+5)
	out["material_name"] = r.MaterialName
	out["source_type"] = r.SourceType
	out["source_file"] = r.SourceFile
	out["extraction_mode"] = string(r.Mode)
	if r.Vendor != "" {
		out["vendor"] = r.Vendor
	}
	if r.Diagnostic != "" {
		out["diagnostic"] = r.Diagnostic
	}
	for p, m := range r.Properties {
		out[string(p)] = m.Value
		out[string(p)+"_unit"] = m.Unit
	}
	return json.Marshal(out)
}
