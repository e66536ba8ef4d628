package domain

// KeyPrefix namespaces all reunite keys in the shared Redis/Valkey instance.
const KeyPrefix = "reunite:"
