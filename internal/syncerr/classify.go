package syncerr

import "syscall"

// Static classification tables, keyed by (domain, code). A code 0 or
// an unregistered domain always classifies false. DNS failure is
// intentionally a member of both sets: whether a caller treats it as
// retryable or as a reachability signal is the caller's choice.

var transientCodes = map[Domain][]int{
	DomainPOSIX: {
		int(syscall.ENETRESET),
		int(syscall.ECONNABORTED),
		int(syscall.ECONNRESET),
		int(syscall.ETIMEDOUT),
		int(syscall.ECONNREFUSED),
	},
	DomainNetwork: {
		NetErrDNSFailure,
	},
	DomainWebSocket: {
		408, // Request Timeout
		429, // Too Many Requests (RFC 6585)
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504, // Gateway Timeout
		WebSocketCloseGoingAway,
	},
}

var networkDependentCodes = map[Domain][]int{
	DomainPOSIX: {
		int(syscall.ENETDOWN),
		int(syscall.ENETUNREACH),
		int(syscall.ENOTCONN),
		int(syscall.ETIMEDOUT),
		int(syscall.EHOSTDOWN),
		int(syscall.EHOSTUNREACH),
		int(syscall.EADDRNOTAVAIL),
	},
	DomainNetwork: {
		NetErrDNSFailure,
		NetErrUnknownHost, // may change if the user joins a VPN or intranet
	},
}

func codeInSet(e Error, set map[Domain][]int) bool {
	if e.Code == 0 {
		return false
	}
	for _, code := range set[e.Domain] {
		if code == e.Code {
			return true
		}
	}
	return false
}

// MayBeTransient reports whether the failure is expected to possibly
// resolve if the operation is simply retried.
func MayBeTransient(e Error) bool {
	return codeInSet(e, transientCodes)
}

// MayBeNetworkDependent reports whether the failure is attributable to
// current network reachability and may resolve when connectivity
// changes.
func MayBeNetworkDependent(e Error) bool {
	return codeInSet(e, networkDependentCodes)
}
