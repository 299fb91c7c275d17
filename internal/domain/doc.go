// Package domain contains shared domain types used across entity sub-packages.
// Entity-specific types live in sub-packages (domain/user). This root package
// holds sentinel errors and the structured error types shared across all
// entities and adapters.
package domain
