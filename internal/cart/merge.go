package cart

// Merge combines a freshly hydrated remote cart with the locally persisted
// cart under remote-then-local precedence:
//
//  1. Remote items seed the result, in remote order, tagged OriginAPI.
//  2. A local item whose productId collides overwrites quantity and
//     updatedAt on the seeded entry (local edits made while offline win over
//     stale remote data) and retags it OriginLocalOverride.
//  3. Local-only items append after the remote block, tagged OriginLocal.
//
// No other ordering is applied. The result never contains two lines with the
// same productId.
func Merge(remote, local Cart) Cart {
	out := make(Cart, 0, len(remote)+len(local))
	idx := make(map[string]int, len(remote))

	for _, it := range remote {
		if i, ok := idx[it.ProductID]; ok {
			// Remote side should never repeat a product, but tolerate it.
			out[i].Quantity += it.Quantity
			continue
		}
		it.Origin = OriginAPI
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}

	for _, it := range local {
		if i, ok := idx[it.ProductID]; ok {
			out[i].Quantity = it.Quantity
			out[i].UpdatedAt = it.UpdatedAt
			out[i].Origin = OriginLocalOverride
			continue
		}
		it.Origin = OriginLocal
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}

	return out
}
