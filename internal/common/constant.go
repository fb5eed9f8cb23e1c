package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer access
// token on outbound requests to the profile/audit backend.
const AuthorizationHeaderName = "Authorization"
