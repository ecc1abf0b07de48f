package main

// General API documentation for swaggo. Handlers carry no route annotations;
// the path definitions are maintained by hand in internal/httpapi/docs/docs.go,
// so do not regenerate that file with `swag init`.
//
// @title           assetwatch API
// @version         1.0
// @description     HTTP API for tracking asset compilation readiness during automation runs.
//
// @contact.name   assetwatch maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
