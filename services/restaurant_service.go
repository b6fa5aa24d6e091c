package services

import (
	"context"
	"strings"

	"foodconnect/models"
)

// RestaurantService 餐厅资料
type RestaurantService struct {
	deps
}

// RestaurantInput 修改餐厅资料的参数
type RestaurantInput struct {
	Name        string `json:"name"`
	Cuisine     string `json:"cuisine"`
	Location    string `json:"location"`
	Address     string `json:"address"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Halal       bool   `json:"halal"`
}

// GetOwn 查询当前餐厅的资料
func (s *RestaurantService) GetOwn(ctx context.Context, actor Actor) (*models.Restaurant, error) {
	return restaurantOf(ctx, s.store, actor)
}

// Get 按ID查询餐厅
func (s *RestaurantService) Get(ctx context.Context, id uint) (*models.Restaurant, error) {
	restaurant, err := s.store.GetRestaurant(ctx, id)
	if err != nil {
		return nil, fromStore(err, "餐厅")
	}
	return restaurant, nil
}

// UpdateOwn 修改当前餐厅的资料
func (s *RestaurantService) UpdateOwn(ctx context.Context, actor Actor, input RestaurantInput) (*models.Restaurant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, newError(KindValidation, "餐厅名称不能为空")
	}
	restaurant, err := restaurantOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}

	restaurant.Name = name
	restaurant.Cuisine = strings.TrimSpace(input.Cuisine)
	restaurant.Location = strings.TrimSpace(input.Location)
	restaurant.Address = input.Address
	restaurant.Description = input.Description
	restaurant.Phone = input.Phone
	restaurant.Halal = input.Halal
	if err := s.store.UpdateRestaurant(ctx, restaurant); err != nil {
		return nil, fromStore(err, "餐厅")
	}
	return restaurant, nil
}
