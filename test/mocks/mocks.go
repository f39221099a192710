// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `make mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/inventory_repository.go -destination=inventory_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sale_repository.go -destination=sale_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/transactor.go -destination=transactor_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/notifier.go -destination=notifier_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/services.go -destination=services_mock.go -package=mocks
