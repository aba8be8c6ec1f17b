package domain

import (
	"sort"
	"strconv"
)

// Well-known metadata keys written by reconciliation.
const (
	MetaProvider           = "provider"
	MetaWebhookData        = "webhookData"
	MetaAuthorizationCode  = "authorizationCode"
	MetaFranchise          = "franchise"
	MetaBank               = "bank"
	MetaReceipt            = "receipt"
	MetaPaymentMethod      = "paymentMethod"
	MetaUnknownStatus      = "unknownStatus"
	MetaRejectedTransition = "rejectedTransition"
	MetaSessionProvider    = "sessionProvider"
	MetaSessionRequestID   = "sessionRequestId"
	MetaPaidAmount         = "paidAmount"
	MetaAmountMismatch     = "amountMismatch"
)

// MergeMetadata merges incoming into existing without ever overwriting a key.
// A colliding key with a different value is stored as key_2, key_3, ...
// A colliding key with an identical value is dropped. existing is not modified.
func MergeMetadata(existing, incoming map[string]string) map[string]string {
	merged := make(map[string]string, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for _, k := range sortedKeys(incoming) {
		v := incoming[k]
		present, ok := merged[k]
		if !ok {
			merged[k] = v
			continue
		}
		if present == v || hasValue(merged, k, v) {
			continue
		}
		for n := 2; ; n++ {
			key := k + "_" + strconv.Itoa(n)
			if _, taken := merged[key]; !taken {
				merged[key] = v
				break
			}
		}
	}
	return merged
}

// MetadataValues returns the values stored under key and its suffixed
// variants, oldest first.
func MetadataValues(m map[string]string, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	values := []string{v}
	for n := 2; ; n++ {
		v, ok := m[key+"_"+strconv.Itoa(n)]
		if !ok {
			return values
		}
		values = append(values, v)
	}
}

// LatestMetadata returns the most recently merged value for key, or "".
func LatestMetadata(m map[string]string, key string) string {
	values := MetadataValues(m, key)
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

// hasValue reports whether v already sits under k or one of its suffixed keys.
func hasValue(m map[string]string, k, v string) bool {
	for n := 2; ; n++ {
		present, ok := m[k+"_"+strconv.Itoa(n)]
		if !ok {
			return false
		}
		if present == v {
			return true
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
