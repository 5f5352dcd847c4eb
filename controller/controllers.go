// controller/controllers.go
package controller

import "github.com/aria7-op/schoolguard/service"

type Controllers struct {
	Access *AccessController
}

func InitializeControllers(accessService service.IAccessService) *Controllers {
	return &Controllers{
		Access: NewAccessController(accessService),
	}
}
