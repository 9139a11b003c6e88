package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/event-ticket-booking/internal/auth" // auth carries the actor type used in capability checks
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) { // begin getUserID helper
    v := c.Get("user_id") // fetch user_id from context
    switch t := v.(type) { // perform type switch on the value
    case uint64: // when already uint64
        return t, nil // return directly
    case float64: // JWT claims decode numbers as float64
        return uint64(t), nil // convert and return
    case string: // when stored as string
        id, err := strconv.ParseUint(t, 10, 64) // parse the string
        if err != nil {
            return 0, errors.New("invalid user id") // parsing failed
        }
        return id, nil
    default: // any other type is unexpected
        return 0, errors.New("missing user id")
    }
}

// getActor builds the capability-check actor from the JWT claims the
// auth middleware stored in the context.
func getActor(c echo.Context) (auth.Actor, error) {
    id, err := getUserID(c)
    if err != nil {
        return auth.Actor{}, err
    }
    role, _ := c.Get("role").(string)
    if role == "" {
        return auth.Actor{}, errors.New("missing role")
    }
    return auth.Actor{ID: id, Role: role}, nil
}

// pathID parses a numeric path parameter.  Zero is never a valid
// identifier.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}
