package txinterceptor

import "github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/adapters"

func NewWithAdapter(db adapters.DBAdapter, options ...Option) (*Interceptor, error) {
	return newInterceptor(db, options)
}
