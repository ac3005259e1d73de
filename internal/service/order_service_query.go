package service

import (
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"
)

// ListUserOrders 分页查询用户自己的订单
func (s *OrderService) ListUserOrders(userID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.UserID = userID
	return s.orderRepo.List(filter)
}

// GetUserOrder 获取用户订单详情（校验归属）
func (s *OrderService) GetUserOrder(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 后台分页查询订单
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// GetOrder 后台获取订单详情
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByNo 按订单号获取订单
func (s *OrderService) GetOrderByNo(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateShippingStatus 后台推进配送状态（preparando/enviado/entregado）
func (s *OrderService) UpdateShippingStatus(orderID uint, status string) (*models.Order, error) {
	switch status {
	case constants.ShippingStatusPreparando, constants.ShippingStatusEnviado, constants.ShippingStatusEntregado:
	default:
		return nil, ErrInvalidShippingStatus
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.ShippingInfo == nil {
		return nil, ErrOrderNotFound
	}

	if err := s.orderRepo.UpdateShippingStatus(orderID, status); err != nil {
		return nil, err
	}
	logger.Infow("shipping_status_updated", "order_id", orderID, "status", status)
	return s.orderRepo.GetByID(orderID)
}
