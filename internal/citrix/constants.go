package citrix

import "time"

// DefaultBaseURL is the Citrix Cloud API endpoint.
const DefaultBaseURL = "https://api.cloud.com"

// HTTP client configuration.
const HTTPTimeout = 30 * time.Second

// RegistrationStateRegistered is the registration state reported for a VDA
// that is currently registered with its delivery controller.
const RegistrationStateRegistered = "Registered"

// authScheme is the scheme the CVAD manage APIs expect in the Authorization header.
const authScheme = "CwsAuth bearer"

// shortTokenLifetime is the remaining bearer token lifetime below which a
// warning is logged after token exchange.
const shortTokenLifetime = time.Minute
