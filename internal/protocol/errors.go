package protocol

import "fmt"

// RemoteError wraps a RESPONSE that carried a code (§7): the appliance
// rejected the request. Handshake best-effort steps swallow this;
// everything else propagates it to the caller.
type RemoteError struct {
	Code     int32
	Resource string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("protocol: remote error %d on %s", e.Code, e.Resource)
}
