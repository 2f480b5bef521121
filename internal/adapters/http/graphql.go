package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
// Object fields resolve through the domain types' json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	fixType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoFix",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"source":    &graphql.Field{Type: graphql.String},
			"source_id": &graphql.Field{Type: graphql.String},
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
			"altitude":  &graphql.Field{Type: graphql.Float},
			"timestamp": &graphql.Field{Type: graphql.DateTime},
		},
	})

	imageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProcessedImage",
		Fields: graphql.Fields{
			"name":         &graphql.Field{Type: graphql.String},
			"located":      &graphql.Field{Type: graphql.Boolean},
			"reason":       &graphql.Field{Type: graphql.String},
			"fix":          &graphql.Field{Type: fixType},
			"processed_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	clusterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Cluster",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.Int},
			"center":  &graphql.Field{Type: geoPointType},
			"members": &graphql.Field{Type: graphql.NewList(fixType)},
		},
	})

	snapshotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClusterSnapshot",
		Fields: graphql.Fields{
			"radius_meters": &graphql.Field{Type: graphql.Float},
			"computed_at":   &graphql.Field{Type: graphql.DateTime},
			"inputs":        &graphql.Field{Type: graphql.Int},
			"clusters":      &graphql.Field{Type: graphql.NewList(clusterType)},
		},
	})

	pageArgs := graphql.FieldConfigArgument{
		"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultPageLimit},
		"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"fixes": &graphql.Field{
				Type:        graphql.NewList(fixType),
				Description: "Stored tracker fixes, oldest first",
				Args:        pageArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					fixes, _, err := deps.Tracker.List(p.Context, p.Args["limit"].(int), p.Args["offset"].(int))
					return fixes, err
				},
			},
			"images": &graphql.Field{
				Type:        graphql.NewList(imageType),
				Description: "Processed images including unlocated placeholders",
				Args:        pageArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					images, _, err := deps.Images.List(p.Context, p.Args["limit"].(int), p.Args["offset"].(int))
					return images, err
				},
			},
			"clusters": &graphql.Field{
				Type:        snapshotType,
				Description: "Clusters of located images at a linking radius in meters",
				Args: graphql.FieldConfigArgument{
					"radius": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					radius := deps.DefaultRadius
					if r, ok := p.Args["radius"].(float64); ok {
						radius = r
					}
					if !radiusInRange(radius) {
						return nil, errors.New(radiusRangeMessage)
					}
					return deps.Clusters.Get(p.Context, radius)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
