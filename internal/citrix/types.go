// Package citrix provides a client for the Citrix Cloud management APIs.
package citrix

// Machine represents a single VDA machine as returned by the CVAD manage API.
// The schema is owned by the remote service; only the fields this program
// consumes are decoded, the rest of the payload is dropped.
type Machine struct {
	ID                string     `json:"Id"`
	Name              string     `json:"Name"`
	MachineCatalog    CatalogRef `json:"MachineCatalog"`
	RegistrationState string     `json:"RegistrationState"` // Registered, Unregistered, AgentError, ...
	InMaintenanceMode bool       `json:"InMaintenanceMode"`
	PowerState        string     `json:"PowerState"` // On, Off, Suspended, Unknown, ...
	AgentVersion      string     `json:"AgentVersion"`
}

// CatalogRef identifies the machine catalog a VDA belongs to.
type CatalogRef struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Registered reports whether the machine is registered with its controller.
func (m Machine) Registered() bool {
	return m.RegistrationState == RegistrationStateRegistered
}

// machinesResponse is the wire envelope of GET /cvad/manage/Machines.
type machinesResponse struct {
	Items             []Machine `json:"Items"`
	ContinuationToken string    `json:"ContinuationToken"`
}

// tokenResponse is the wire envelope of the trust token exchange.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
