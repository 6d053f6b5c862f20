package vault

import kerrors "github.com/PolarWolf314/credvault/internal/errors"

// Envelope is the structured result reported at the vault boundary.
type Envelope struct {
	Success bool       `json:"success"`
	Result  any        `json:"result,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// NewEnvelope reports result on success and err's code and message
// otherwise.
func NewEnvelope(result any, err error) Envelope {
	if err != nil {
		return Envelope{Error: &ErrorBody{Message: kerrors.Message(err), Code: kerrors.Code(err)}}
	}
	return Envelope{Success: true, Result: result}
}
