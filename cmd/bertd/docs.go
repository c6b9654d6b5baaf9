package main

// General API documentation for swaggo. Run `swag init` to generate docs.
//
// @title           bertd API
// @version         1.0
// @description     BERT ONNX inference with Prometheus metrics.
//
// @contact.name   bertd maintainers
// @contact.url    https://github.com/your-org/bertd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
